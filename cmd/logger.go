package cmd

import "github.com/k1LoW/tail"

const tailLines = 100

// tb keeps the last log lines for error.json.
var tb = tail.New(tailLines)
