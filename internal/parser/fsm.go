package parser

import "github.com/cnab-dev/cnab/internal/model"

// Effect is what the parser does with a line after a transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectSetHeader
	EffectOpenBatch
	EffectAddDetail
	EffectCloseBatch
	EffectSetTrailer
	EffectUnbatched
)

func (e Effect) String() string {
	switch e {
	case EffectSetHeader:
		return "set_header"
	case EffectOpenBatch:
		return "open_batch"
	case EffectAddDetail:
		return "add_detail"
	case EffectCloseBatch:
		return "close_batch"
	case EffectSetTrailer:
		return "set_trailer"
	case EffectUnbatched:
		return "unbatched"
	default:
		return "none"
	}
}

// State240 is a state of the CNAB 240 file machine.
type State240 int

const (
	WaitingFileHeader State240 = iota
	WaitingBatchHeader
	ProcessingBatchDetails
	WaitingBatchTrailer
	WaitingFileTrailer
	Finished240
	Error240
)

func (s State240) String() string {
	switch s {
	case WaitingFileHeader:
		return "waiting_file_header"
	case WaitingBatchHeader:
		return "waiting_batch_header"
	case ProcessingBatchDetails:
		return "processing_batch_details"
	case WaitingBatchTrailer:
		return "waiting_batch_trailer"
	case WaitingFileTrailer:
		return "waiting_file_trailer"
	case Finished240:
		return "finished"
	default:
		return "error"
	}
}

// Transition240 is the CNAB 240 transition function. ok is false when tag is
// not acceptable in s; the machine then moves to (or stays in) Error240 and
// the returned effect is what the tag would normally do, so the record still
// lands somewhere.
//
// ProcessingBatchDetails is a batch with no details yet, WaitingBatchTrailer
// one with at least one. WaitingFileTrailer follows a closed batch and takes
// either another batch header or the file trailer.
func Transition240(s State240, tag model.RecordType) (State240, Effect, bool) {
	switch {
	case s == WaitingFileHeader && tag == model.RecordFileHeader:
		return WaitingBatchHeader, EffectSetHeader, true
	case (s == WaitingBatchHeader || s == WaitingFileTrailer) && tag == model.RecordBatchHeader:
		return ProcessingBatchDetails, EffectOpenBatch, true
	case (s == WaitingBatchHeader || s == WaitingFileTrailer) && tag == model.RecordFileTrailer:
		return Finished240, EffectSetTrailer, true
	case (s == ProcessingBatchDetails || s == WaitingBatchTrailer) && tag == model.RecordDetail:
		return WaitingBatchTrailer, EffectAddDetail, true
	case (s == ProcessingBatchDetails || s == WaitingBatchTrailer) && tag == model.RecordBatchTrailer:
		return WaitingFileTrailer, EffectCloseBatch, true
	}
	return Error240, effect240(tag), false
}

func effect240(tag model.RecordType) Effect {
	switch tag {
	case model.RecordFileHeader:
		return EffectSetHeader
	case model.RecordBatchHeader:
		return EffectOpenBatch
	case model.RecordDetail:
		return EffectAddDetail
	case model.RecordBatchTrailer:
		return EffectCloseBatch
	case model.RecordFileTrailer:
		return EffectSetTrailer
	default:
		return EffectUnbatched
	}
}

// State400 is a state of the CNAB 400 file machine.
type State400 int

const (
	WaitingHeader State400 = iota
	ProcessingDetails
	WaitingTrailer
	Finished400
	Error400
)

func (s State400) String() string {
	switch s {
	case WaitingHeader:
		return "waiting_header"
	case ProcessingDetails:
		return "processing_details"
	case WaitingTrailer:
		return "waiting_trailer"
	case Finished400:
		return "finished"
	default:
		return "error"
	}
}

// Transition400 is the CNAB 400 transition function, with the same error
// convention as Transition240. ProcessingDetails has seen no detail yet;
// both it and WaitingTrailer accept a detail or the trailer.
func Transition400(s State400, tag model.RecordType) (State400, Effect, bool) {
	switch {
	case s == WaitingHeader && tag == model.RecordHeader:
		return ProcessingDetails, EffectSetHeader, true
	case (s == ProcessingDetails || s == WaitingTrailer) && tag == model.RecordDetail:
		return WaitingTrailer, EffectAddDetail, true
	case (s == ProcessingDetails || s == WaitingTrailer) && tag == model.RecordTrailer:
		return Finished400, EffectSetTrailer, true
	}
	return Error400, effect400(tag), false
}

func effect400(tag model.RecordType) Effect {
	switch tag {
	case model.RecordHeader:
		return EffectSetHeader
	case model.RecordDetail:
		return EffectAddDetail
	case model.RecordTrailer:
		return EffectSetTrailer
	default:
		return EffectUnbatched
	}
}
