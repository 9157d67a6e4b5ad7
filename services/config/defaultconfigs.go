package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: board ID (same value placed in ctx under CtxBoardKey)
// Val: raw JSON bytes for that board
// -----------------------------------------------------------------------------

// The EK-TM4C123GXL LaunchPad default table: the red user LED on PF1 driven
// high, and user switch SW1 on PF4 as a pull-up input whose direction must
// never change at runtime.
const cfgLaunchpad = `{
  "hal": {
    "version": 1,
    "refresh_ms": 1000,
    "pins": [
      {"port": "F", "channel": 1, "mode": "dio", "direction": "out",
       "initial": "high", "dir_changeable": true, "mode_changeable": true},
      {"port": "F", "channel": 4, "mode": "dio", "direction": "in",
       "pull": "up", "dir_changeable": false, "mode_changeable": false}
    ]
  }
}`

var embeddedConfigs = map[string][]byte{
	"launchpad": []byte(cfgLaunchpad),
}
