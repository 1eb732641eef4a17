// Package synthesis implements the second pipeline stage: producing the
// visual and voiceover assets for every scene in a parsed script.
//
// Visuals come from the imagegen provider chain, which always yields an
// asset. Voiceovers are best-effort: a failed synthesis degrades the scene to
// silent instead of failing the stage. The resulting artifact paths are
// recorded in a staging-dir manifest consumed by the assembly stage.
package synthesis
