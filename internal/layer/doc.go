// Package layer provides the target side of a sync binding: map layers and
// the ordered collection that holds them.
//
// A Layer is identified by pointer. Two layers with identical properties are
// still distinct elements. Collection keeps its elements unique and emits an
// add or remove notification after every membership change, carrying the
// element and the position it occupied.
package layer
