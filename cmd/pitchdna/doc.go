// Package main hosts the pitchdna CLI entrypoint and command graph.
//
// Each stage command (identify, locate, link, verify, check) loads configuration,
// builds the stage with its catalog client and resolution cache, and hands it
// to stageexec, which checkpoints progress so an interrupted run can continue
// with --resume. The config subcommands scaffold and inspect configuration.
//
// Keep this package lean: resolution logic lives in the internal packages and
// is only surfaced here.
package main
