// Package domain models delivery-radius queries over US postal codes.
//
// # Two-stage decision
//
// A candidate postal code is first judged by great-circle distance from the
// source. Only candidates near the radius boundary are confirmed by road
// drive time, because drive-time lookups are slow and rate limited.
//
// Let ratio = distance / radius:
//
//	ratio <  0.8         inner zone  in_distance, no lookup
//	0.8 <= ratio <= 1.2  edge zone   in_drive_time or out_drive_time
//	ratio >  1.2         outer zone  never part of a result set
//
// Both 0.8 and 1.2 belong to the edge zone. [Zone] is the single ratio test;
// [Classify], [NeedsDriveTime], [WithinSearchArea] and [ExtractEdgeCases] all
// go through it.
//
// Edge candidates without a drive time are provisionally out_drive_time. An
// unreachable lookup (no route, provider error, batch timeout) also resolves
// to out_drive_time, with no minutes recorded.
//
// # Overrides
//
// An operator can flip inclusion of a single result. Overridden results keep
// their classification through reclassification (drive time is still
// refreshed). Removing an override recomputes the classification from the
// stored distance, drive time, radius and threshold with [Classify]; no
// separate pre-override state is consulted.
//
// # Export
//
// [ExportRows] flattens a result set to the nine columns of the CSV export:
// source code, candidate code, city, county, state, distance (2 decimals),
// drive time (whole minutes, blank when absent), status label, included.
package domain
