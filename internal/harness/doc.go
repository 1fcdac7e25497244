// Package harness runs sync scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: add_at_front
//	description: "A layer inserted at the front of the target lands at the front of the model"
//	layers:
//	  - id: a
//	    title: Alpha
//	  - id: c
//	    title: Gamma
//	    props: { visible: true }
//	target: [a]
//	steps:
//	  - op: target.insert
//	    layer: c
//	    index: 0
//	assertions:
//	  - type: model_order
//	    layers: [c, a]
//	  - type: in_sync
//
// layers declares the pool of layers a scenario refers to by id; manifest
// (with manifest_name) adds the layers of a CUE manifest to it. target and
// model pick the layers each collection holds before binding. When both are
// omitted the target holds the whole pool and the model starts empty.
// bind defaults to true.
//
// # Steps
//
//   - target.insert (layer, index), target.remove (layer),
//     target.move (from, to), target.set (layer, key, value), target.clear
//   - model.insert (layer, index), model.remove (layer), model.move (from, to),
//     model.set (layer, key, value), model.replace (layer, with),
//     model.load (layers, additive), model.clear, model.destroy
//   - bind, unbind
//
// A step with expect_error: true must fail.
//
// # Assertions
//
//   - model_order, target_order: layer ids of the collection, in order
//   - in_sync: both collections paired position by position
//   - title: layer and record title
//   - event_count: raw notifications raised while the steps ran
//   - step_count: sync steps, filtered by op and direction
//   - listener_count: listeners held by the engine, or on the target, model
//     or a layer
//   - bound, record_count
//
// # Determinism
//
// Each run uses fresh collections, a step clock starting at 1 and record
// IDs rec-1, rec-2, ... in read order, so golden traces are stable.
package harness
