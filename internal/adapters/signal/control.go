package signal

// handlePing answers an application-level ping with a pong frame.
// Distinct from the websocket control ping the write pump sends.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
