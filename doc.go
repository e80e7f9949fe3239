// Package fresco provides the shared protocol types for a client-side
// synchronization and UI-description engine speaking the AG-UI event
// stream with a surface-description extension.
//
// An agent backend emits an ordered stream of events: run/step lifecycle,
// streamed text and tool-call fragments, whole or incremental state
// changes, and declarative descriptions of renderable surfaces. The
// packages in this module keep a local mirror of that state consistent,
// reassemble streamed fragments into complete units, and derive a
// concrete, bindings-resolved render tree that a pluggable renderer can
// paint.
//
// # Package Map
//
//   - [github.com/spetersoncode/fresco]: wire types shared by everything
//     below (event union, surface messages, bound values, errors)
//   - [github.com/spetersoncode/fresco/router]: demultiplexes parsed
//     events to typed and name-keyed handlers
//   - [github.com/spetersoncode/fresco/patch]: RFC 6902 JSON Patch engine
//     for state synchronization
//   - [github.com/spetersoncode/fresco/store]: path-addressable reactive
//     data store with ancestor-bubbling subscriptions
//   - [github.com/spetersoncode/fresco/buffer]: reassembly buffers for
//     streamed messages and tool calls
//   - [github.com/spetersoncode/fresco/binding]: resolves declarative
//     bindings against the store and loop contexts
//   - [github.com/spetersoncode/fresco/registry]: component whitelist and
//     prop schema validation
//   - [github.com/spetersoncode/fresco/engine]: the surface coordinator
//     producing render trees
//   - [github.com/spetersoncode/fresco/client]: wires transport, router,
//     buffers, state and engine into one consumer
//
// # Event Stream
//
// Events arrive as one JSON object per message, discriminated by a type
// tag:
//
//	ev, err := fresco.ParseEvent(data)
//	if err != nil {
//	    // malformed payload: drop the message
//	}
//	switch ev := ev.(type) {
//	case *fresco.TextMessageContentEvent:
//	    fmt.Print(ev.Delta)
//	case *fresco.StateDeltaEvent:
//	    doc, _ = patch.Apply(doc, ev.Delta)
//	}
//
// # Surface Messages
//
// Surface descriptions ride inside CUSTOM events and use a single-variant
// envelope:
//
//	{"surfaceUpdate": {"surfaceId": "main", "components": [...]}}
//	{"beginRendering": {"surfaceId": "main", "root": "root"}}
//
// Component props mix raw values with bound values:
//
//	{"text": {"path": "/user/name"}}
//	{"text": {"literalString": "Hello"}}
//
// See the engine package for how surfaces become render trees.
package fresco
