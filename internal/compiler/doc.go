// Package compiler turns CUE layer manifests into ir.LayerSpec lists.
//
// A manifest declares the initial layers of a map, in order:
//
//	manifest: basemap: {
//		layers: [
//			{id: "osm", title: "OpenStreetMap"},
//			{id: "roads", title: "Roads", props: {opacity: 80, visible: true}},
//		]
//	}
//
// Property values may be strings, ints, bools, null, lists and structs.
// Floats are rejected; use ints (e.g. opacity in percent).
package compiler
