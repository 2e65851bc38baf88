// Package record provides schema-driven entities for the copy engine.
//
// A Record is a map-backed entity whose type descriptor is generated from
// compiled CUE metadata by BuildRegistry. Codec reads and writes record
// graphs as YAML documents:
//
//	type: Project
//	id: 1
//	title: Apollo
//	budget: "1200.50"
//	startDate: 2024-03-01
//	manager: 7            # reference by identity, or {id: 7}
//	positions:
//	  - id: 5
//	    number: 1
//	  - number: 2         # no identity yet
//
// Collection members take the collection's target type unless they name a
// subtype with their own type key.
package record
