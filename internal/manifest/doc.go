// Package manifest loads registration manifests: files listing the batches of
// provenance entries a code generator would register at load time.
//
// Manifests are written in YAML or CUE. Both decode into the same Manifest
// type. CUE manifests are unified with an embedded schema (schema.cue), so
// typos and malformed keys are reported with file positions. YAML manifests
// are decoded strictly and reject unknown fields.
//
// Example (YAML):
//
//	module: M.A
//	batches:
//	  - entries:
//	      - key: "0x1000"
//	        table_name: M.A_f_info
//	        srcloc: A.hs:10
package manifest
