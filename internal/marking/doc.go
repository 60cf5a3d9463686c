// Package marking turns an economics essay into structured marking feedback.
//
// The pipeline is: ResolveScheme -> BuildMarkingPrompt -> Gateway.Complete ->
// ExtractMarkingResult, driven by Marker. Model output is treated as untrusted:
// it is located, shape-checked and normalised before it is returned, and
// totalMarks and percentage are always recomputed from the request.
package marking
