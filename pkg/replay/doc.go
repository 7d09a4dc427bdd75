// Package replay records matches to disk and reads them back.
//
// A replay file starts with a header and is followed by one record per
// processed tick:
//
//	magic        4 bytes, "CGRP"
//	version      int32, schema version of the recorded match
//	created      int64, Unix milliseconds
//	records...   model.PlayerView as seen by a spectator
//
// Records use the same encoding as the wire protocol, so a replay written by
// one build can be read by any build that knows its schema version. The file
// ends after the last whole record; anything else is ErrCorrupt.
//
// Finished replays can be stored in S3 with S3Uploader.
package replay
