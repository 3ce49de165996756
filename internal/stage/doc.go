// Package stage implements the pipeline stages run over a record table:
// identify (name to player id), locate (pitch description to game and
// pitch number via Statcast), link (game pitch to StatsAPI play id and clip
// URL), verify (play id back to its pitcher), and check (clip URL still
// serves a video).
//
// Every stage is a batch.Processor; cmd/pitchdna drives them through
// stageexec with checkpointing and resume.
package stage
