package recast

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for record events.
var (
	SignalRecordRegistered  = capitan.NewSignal("recast.record.registered", "Record type registered")
	SignalDecodeStart       = capitan.NewSignal("recast.decode.start", "Decode operation beginning")
	SignalDecodeComplete    = capitan.NewSignal("recast.decode.complete", "Decode operation finished")
	SignalEncodeStart       = capitan.NewSignal("recast.encode.start", "Encode operation beginning")
	SignalEncodeComplete    = capitan.NewSignal("recast.encode.complete", "Encode operation finished")
	SignalSubtypeSelected   = capitan.NewSignal("recast.decode.subtype", "Subtype chosen for undeclared keys")
	SignalWarning           = capitan.NewSignal("recast.decode.warning", "Recoverable decode condition")
	SignalMarshalComplete   = capitan.NewSignal("recast.marshal.complete", "Serializer wrote bytes")
	SignalUnmarshalComplete = capitan.NewSignal("recast.unmarshal.complete", "Serializer read bytes")
)

// Keys for typed event data.
var (
	KeyContentType  = capitan.NewStringKey("content_type")
	KeyTypeName     = capitan.NewStringKey("type_name")
	KeyResultType   = capitan.NewStringKey("result_type")
	KeySubtypeName  = capitan.NewStringKey("subtype_name")
	KeyFieldName    = capitan.NewStringKey("field_name")
	KeyWarningCode  = capitan.NewStringKey("warning_code")
	KeyMessage      = capitan.NewStringKey("message")
	KeyFieldCount   = capitan.NewIntKey("field_count")
	KeyKeyCount     = capitan.NewIntKey("key_count")
	KeyWarningCount = capitan.NewIntKey("warning_count")
	KeyDecodeMode   = capitan.NewStringKey("decode_mode")
	KeySize         = capitan.NewIntKey("size")
	KeyDuration     = capitan.NewDurationKey("duration")
	KeyError        = capitan.NewErrorKey("error")
)

func emitRecordRegistered(ctx context.Context, typeName string, fields int, decodeIntoSubtypes bool) {
	mode := "drop"
	if decodeIntoSubtypes {
		mode = "subtypes"
	}
	capitan.Emit(ctx, SignalRecordRegistered,
		KeyTypeName.Field(typeName),
		KeyFieldCount.Field(fields),
		KeyDecodeMode.Field(mode),
	)
}

func emitDecodeStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalDecodeStart,
		KeyTypeName.Field(typeName),
	)
}

// emitDecodeComplete emits an event when a decode finishes. resultType is
// the concrete record produced, which differs from typeName when a subtype
// was chosen.
func emitDecodeComplete(ctx context.Context, typeName, resultType string, duration time.Duration, warnings int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyResultType.Field(resultType),
		KeyDuration.Field(duration),
		KeyWarningCount.Field(warnings),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

func emitEncodeStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalEncodeStart,
		KeyTypeName.Field(typeName),
	)
}

func emitEncodeComplete(ctx context.Context, typeName string, keys int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyKeyCount.Field(keys),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

func emitSubtypeSelected(ctx context.Context, typeName, subtypeName string, keys int) {
	capitan.Emit(ctx, SignalSubtypeSelected,
		KeyTypeName.Field(typeName),
		KeySubtypeName.Field(subtypeName),
		KeyKeyCount.Field(keys),
	)
}

func emitWarning(ctx context.Context, w Warning) {
	capitan.Emit(ctx, SignalWarning,
		KeyWarningCode.Field(string(w.Code)),
		KeyTypeName.Field(w.Type),
		KeyFieldName.Field(w.Field),
		KeyMessage.Field(w.Message),
	)
}

// emitMarshalComplete emits an event when a serializer finishes writing.
func emitMarshalComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalMarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalMarshalComplete, fields...)
	}
}

// emitUnmarshalComplete emits an event when a serializer finishes reading.
func emitUnmarshalComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalUnmarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalUnmarshalComplete, fields...)
	}
}
