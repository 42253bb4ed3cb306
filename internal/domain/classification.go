package domain

// Zone thresholds as fractions of the radius.
const (
	InnerThreshold = 0.8
	OuterThreshold = 1.2
)

// Classification is the inclusion status of a candidate. Exactly one holds.
type Classification string

const (
	InDistance    Classification = "in_distance"
	InDriveTime   Classification = "in_drive_time"
	OutDriveTime  Classification = "out_drive_time"
	OverriddenIn  Classification = "overridden_in"
	OverriddenOut Classification = "overridden_out"
)

// DistanceZone groups candidates by distance ratio.
type DistanceZone string

const (
	ZoneInner DistanceZone = "inner"
	ZoneEdge  DistanceZone = "edge"
	ZoneOuter DistanceZone = "outer"
)

// Zone places a distance relative to the radius. Both thresholds are
// inclusive of the edge zone.
func Zone(distanceMiles, radiusMiles float64) DistanceZone {
	ratio := distanceMiles / radiusMiles
	switch {
	case ratio < InnerThreshold:
		return ZoneInner
	case ratio <= OuterThreshold:
		return ZoneEdge
	default:
		return ZoneOuter
	}
}

// NeedsDriveTime reports whether a candidate is in the edge zone.
func NeedsDriveTime(distanceMiles, radiusMiles float64) bool {
	return Zone(distanceMiles, radiusMiles) == ZoneEdge
}

// WithinSearchArea reports whether a candidate belongs in a result set at all.
func WithinSearchArea(distanceMiles, radiusMiles float64) bool {
	return Zone(distanceMiles, radiusMiles) != ZoneOuter
}

// Classify applies the distance and drive-time rules. A nil drive time in the
// edge zone is treated as not confirmed.
func Classify(distanceMiles, radiusMiles float64, driveTimeMinutes *float64, thresholdMinutes float64) Classification {
	switch Zone(distanceMiles, radiusMiles) {
	case ZoneInner:
		return InDistance
	case ZoneEdge:
		if driveTimeMinutes != nil && *driveTimeMinutes <= thresholdMinutes {
			return InDriveTime
		}
		return OutDriveTime
	default:
		return OutDriveTime
	}
}

// IsIncluded reports whether a classification counts toward the service area.
func IsIncluded(c Classification) bool {
	return c == InDistance || c == InDriveTime || c == OverriddenIn
}

// IsOverriddenClass reports whether c is one of the manual override states.
func IsOverriddenClass(c Classification) bool {
	return c == OverriddenIn || c == OverriddenOut
}

// StatusLabel is the human-readable label used in exports.
func StatusLabel(c Classification) string {
	switch c {
	case InDistance:
		return "In — distance confirmed"
	case InDriveTime:
		return "In — drive time confirmed"
	case OutDriveTime:
		return "Out — drive time exceeded"
	case OverriddenIn:
		return "Overridden — included"
	case OverriddenOut:
		return "Overridden — excluded"
	default:
		return "Unknown"
	}
}
