// Package core provides the bulk import and deduplication pipeline for the CRM.
//
// It is independent of HTTP and of the storage engine: storage is reached
// through the small interfaces in types.go, which *database.Queries satisfies.
//
// # Pipeline
//
// An uploaded file flows through these stages, all driven by [Importer.Run]:
//
//  1. An import job row is created in the "processing" state.
//  2. The file is parsed into [RawRecord] values ([ParseFile]).
//  3. Each record is split into schema and custom fields ([Classify]) and
//     fingerprinted ([Hash]). This step runs in parallel.
//  4. The distinct custom field names of the whole job are registered once
//     with the [FieldRegistry].
//  5. Fingerprints already present among live rows are counted as duplicates.
//  6. Remaining records are inserted one at a time; a failed insert only
//     bumps the error counter.
//  7. The job is marked "completed" with its final counters.
//
// # Duplicate notions
//
// Two different duplicate checks exist and they are not equivalent:
//
//   - The import fingerprint covers every schema and custom field.
//   - The [Sweeper] compares only the custom_fields document of live rows
//     and soft-deletes later copies.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages by [MapError]. Codes:
//
//   - DB001-DB007: database errors
//   - FILE001-FILE005: file errors (size, format, content)
//   - IMP001-IMP002: import request errors
//   - UPL002-UPL005: concurrency and request lifetime errors
package core
