// spindash turns a personal music-streaming export into a small set of
// dashboard-ready artifact files. It is a batch job: read everything, run a
// fixed sequence of transformations, write the artifacts, exit.
//
// The pipeline stages, in dependency order:
//
// 1. Source
//
//    A spindash.Source hands out raw play records one at a time. Exports show
//    up in a few shapes - a single big JSON file, a directory of per-year
//    files, an object in an S3 bucket - and each Source knows how to get
//    records out of one of them. A Source does no interpretation of the
//    records; that is the Normalizer's job.
//
// 2. Normalizer
//
//    Export schemas have drifted over the years, so the same attribute hides
//    under different key names depending on when the export was generated.
//    The Normalizer resolves each canonical attribute through an ordered
//    alias list, parses timestamps from the several layouts that occur in the
//    wild, and produces an Event with fixed fields and derived UTC calendar
//    components.
//
// 3. Filter
//
//    The Filter throws out records that would poison the aggregates: manual
//    exclusions, unknown metadata, implausibly short or long plays, and
//    statistical outliers. Every event gets exactly one Decision, and kept
//    events have their durations winsorized at the 99th percentile.
//
// 4. Dedupe
//
//    Merged exports commonly contain overlapping date ranges, so the same
//    physical play can be logged twice. Dedupe collapses events sharing an
//    exact (artist, track, timestamp) triple.
//
// 5. Aggregator and Sessions
//
//    The Aggregator folds the surviving events into per-dimension bucket maps
//    (year, month, hour, weekday, artist, track, album, device, day) in one
//    pass. The session segmenter independently partitions the chronological
//    stream into listening sessions using a 30 minute gap threshold.
//
// 6. Output
//
//    The output package serializes each aggregate to its own self-contained
//    artifact file so the dashboard can load each chart independently.
package spindash
