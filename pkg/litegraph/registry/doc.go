// Package registry provides a generic thread-safe registry for values indexed
// by an ordered key.
//
// It backs the node type catalogue of litegraph: each registered type name maps
// to its descriptor, and Put reports the descriptor it replaced so callers can
// emit replacement notifications.
//
//	types := registry.New[string, NodeType]()
//	if prev, replaced := types.Put("math/sum", sum); replaced {
//	    log.Printf("replaced %s", prev.Title)
//	}
//
// Keys and Range always iterate in ascending key order, which keeps catalogue
// listings stable between runs. Range walks a snapshot, so the callback may
// mutate the registry.
package registry
