// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldFiles      = "files"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Document and analysis fields.
	FieldDocument = "document"
	FieldVersion  = "version"
	FieldPriority = "priority"
	FieldMode     = "mode"
	FieldOutcome  = "outcome"
	FieldWorker   = "worker"
	FieldStamp    = "stamp"
	FieldLanguage = "language"
	FieldArgs     = "args"

	// Configuration fields.
	FieldFlavor    = "flavor"
	FieldFix       = "fix"
	FieldWorkers   = "workers"
	FieldPoolSize  = "pool_size"
	FieldBlockSize = "block_size"

	// Statistics fields.
	FieldFilesDiscovered = "files_discovered"
	FieldFilesProcessed  = "files_processed"
	FieldProblemsTotal   = "problems_total"
	FieldFilesModified   = "files_modified"
	FieldPublished       = "published"
	FieldStale           = "stale"
	FieldFailed          = "failed"
	FieldExhausted       = "exhausted"

	// Build fields.
	FieldCommit = "commit"
	FieldBuilt  = "built"
)
