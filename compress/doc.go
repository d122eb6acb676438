// Package compress implements the container's chunk payload compression algorithms: None,
// Zstd, S2, and LZ4.
//
// Compression is the third of the chunk pipeline's assembly rules, applied to whatever chunk
// isn't already handled by the cheaper same-bytes or duplicate-reference rules. The pipeline
// only keeps a compressed result when it clears chunk.Config.CompressionThreshold; otherwise
// the chunk is written raw, since forensic chunk data (disk images, already-compressed file
// content) is frequently incompressible and paying the CPU cost for no gain isn't worth it.
//
// # Choosing an algorithm
//
//   - None: no CPU cost, no size reduction. Appropriate when the source is already compressed
//     (media, archives) or compression is disabled for acquisition speed.
//   - Zstd: best ratio of the three, moderate speed. The default for cold-storage acquisitions
//     where container size matters more than acquisition throughput.
//   - S2: a faster, lower-ratio alternative to Zstd for throughput-sensitive acquisitions.
//   - LZ4: fastest decompression, useful when the container will be read back (verification,
//     analysis) far more often than it's written.
//
// Every Decompressor is looked up by the format.CompressionType recorded in the object's
// CompressionHeader, so a reader never needs to guess which algorithm wrote a given chunk.
package compress
