package version

// Name for this
const Name string = "sensepanel"

// Version for this
var Version = "dev" //nostyle:repetition

// Revision for this
var Revision = "HEAD"
