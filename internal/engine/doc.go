// Package engine runs blueprint graphs.
//
// A run starts at the Begin node and follows execution wires depth-first, in
// the order the wires were authored. Data pins are resolved on demand by
// walking data wires backwards from the pin a node needs; nothing is cached,
// so every read sees the variables as they are at that moment.
//
// Each run owns a copy of the graph variables and its own loop contexts.
// Runs are pulled one trace event at a time and hold nothing that needs
// releasing, so a consumer may stop pulling at any point.
package engine
