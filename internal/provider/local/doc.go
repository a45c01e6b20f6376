/*
Package local implements the filesystem reference provider.

It is the one backend that implements real storage logic instead of
delegating to a vendor SDK. Objects live in two parallel trees under the
configured base directory:

	<base>/objects/<sanitized-key>               content bytes
	<base>/meta/<sanitized-key>.meta.json        sidecar metadata record

The sidecar is the single source of truth for existence: an object is
present if and only if its sidecar parses. Writes put content first and
the sidecar second, so a crash mid-upload leaves at worst content without
metadata, which reads as a missing object, never a corrupt one. The two
writes are not atomic as a pair; a stronger scheme (pending marker in the
sidecar, finalize after content) is a known possible improvement.

Keys are sanitized before use as path segments: every character outside
[A-Za-z0-9._/-] becomes '_'. The sanitization is one-way and lossy
(distinct keys can collide after sanitization); the canonical key is
always stored in the sidecar, never reconstructed from the path.
*/
package local
