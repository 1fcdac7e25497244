// Package model provides the model side of a sync binding: a store of
// records describing layers, held in insertion order.
//
// Every Record owns exactly one backing layer.Element. Store emits load,
// clear, add, remove, update and destroy notifications; its Entries storage
// emits replace when a record object is swapped into an occupied slot.
//
// Records are created from layer elements through a Reader. The default
// LayerReader derives the record ID from an IDGenerator and copies the
// layer's title; every other property becomes an uninterpreted field.
package model
