package condition

import "github.com/wesleywu/hello-antd-pro/internal/schema"

// EnvelopeType is the @type of every condition fragment.
const EnvelopeType = "goguru.orm.Condition"

// TimestampType is the scalar tag shared by Date and DateTime fields.
const TimestampType = "google.protobuf.Timestamp"

var scalarTags = map[schema.WireType]string{
	schema.WireDouble:   "google.protobuf.DoubleValue",
	schema.WireFloat:    "google.protobuf.FloatValue",
	schema.WireInt64:    "google.protobuf.Int64Value",
	schema.WireUInt64:   "google.protobuf.UInt64Value",
	schema.WireInt32:    "google.protobuf.Int32Value",
	schema.WireUInt32:   "google.protobuf.UInt32Value",
	schema.WireBool:     "google.protobuf.BoolValue",
	schema.WireString:   "google.protobuf.StringValue",
	schema.WireDate:     TimestampType,
	schema.WireDateTime: TimestampType,
}

var sliceTags = map[schema.WireType]string{
	schema.WireDouble:   "goguru.types.DoubleSlice",
	schema.WireFloat:    "goguru.types.FloatSlice",
	schema.WireInt64:    "goguru.types.Int64Slice",
	schema.WireUInt64:   "goguru.types.UInt64Slice",
	schema.WireInt32:    "goguru.types.Int32Slice",
	schema.WireUInt32:   "goguru.types.UInt32Slice",
	schema.WireBool:     "goguru.types.BoolSlice",
	schema.WireString:   "goguru.types.StringSlice",
	schema.WireDate:     "goguru.types.TimestampSlice",
	schema.WireDateTime: "goguru.types.TimestampSlice",
}

// ScalarTag returns the single-value wire tag for wt.
func ScalarTag(wt schema.WireType) (string, bool) {
	tag, ok := scalarTags[wt]
	return tag, ok
}

// SliceTag returns the multi-value wire tag for wt.
func SliceTag(wt schema.WireType) (string, bool) {
	tag, ok := sliceTags[wt]
	return tag, ok
}

// IsSliceTag reports whether tag names one of the slice envelopes.
func IsSliceTag(tag string) bool {
	for _, t := range sliceTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsKnownTag reports whether tag is any scalar or slice envelope.
func IsKnownTag(tag string) bool {
	for _, t := range scalarTags {
		if t == tag {
			return true
		}
	}
	return IsSliceTag(tag)
}
