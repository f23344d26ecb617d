package build

// Release identifies which set of constants (production, development, or
// testing) the binary was built against. It mirrors the teacher's
// build-tag-selected release constant, but is kept as a plain variable here
// since the file pool has no separate release-specific source files to
// select between — callers that embed this module in a larger binary may
// override it during init.
var Release = "standard"

// DEBUG indicates whether the binary was built with debugging assertions
// enabled. When true, Critical and Severe panic instead of merely logging.
var DEBUG = false
