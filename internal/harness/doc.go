// Package harness provides a scripted Exchange ActiveSync server for tests.
//
// A Server answers commands from a queue of replies per command name and
// records every request it receives. Replies are usually written in the
// fixture text format understood by Compile and Dump, so tests read as the
// XML the server would send rather than as WBXML bytes.
//
// # Scenario Format
//
// Scenarios are YAML files describing the server side of an exchange and
// what the client must have sent:
//
//	name: inbox_initial_sync
//	description: "Initial key, then one window of messages"
//	versions: "2.5,12.0"
//	replies:
//	  - command: Sync
//	    wbxml: |
//	      AirSync:Sync
//	        AirSync:Collections
//	          AirSync:Collection
//	            AirSync:SyncKey 1
//	            AirSync:CollectionId 5
//	            AirSync:Status 1
//	  - command: GetAttachment
//	    size: 32768
//	    content_type: application/octet-stream
//	assertions:
//	  - type: request_count
//	    command: Sync
//	    count: 2
//	  - type: request_order
//	    commands: [FolderSync, Sync]
//	  - type: request_contains
//	    command: Sync
//	    lines: ["AirSync:SyncKey 0"]
//
// # Assertion Types
//
//   - request_count: the command was received exactly count times
//   - request_order: the commands were first received in the given order
//   - request_contains: some request for the command carries every line
//     and query parameter given
//
// Recorded requests render as a transcript for golden comparison with
// AssertGolden.
package harness
