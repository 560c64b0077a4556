// Package live publishes named signals over HTTP and WebSocket.
//
// A Registry holds the nodes of one reactive graph by name and serializes
// every write to it, so the graph keeps the single-writer model of the signals
// package even when HTTP handlers run concurrently. A Server exposes the
// registry:
//
//	GET  /signals         list every node with its value
//	GET  /signals/{name}  read one value
//	PUT  /signals/{name}  write one value (JSON body)
//	GET  /ws              stream changes (repeat ?signal=name to filter)
//
// WebSocket clients receive the current value of each watched node on connect
// and one message per change afterwards. Clients may also send
// {"op":"set","signal":"name","value":...} to write.
package live
