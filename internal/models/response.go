package models

import "railplanner.org/internal/clock"

const apiVersion = 1

// ResponseModel is the envelope every JSON endpoint replies with.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
	Data        any    `json:"data,omitempty"`
}

type EntryData struct {
	Entry any `json:"entry"`
}

type ListData struct {
	List          any  `json:"list"`
	LimitExceeded bool `json:"limitExceeded"`
}

func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Text:        "OK",
		Version:     apiVersion,
		Data:        data,
	}
}

func NewEntryResponse(entry any, c clock.Clock) ResponseModel {
	return NewOKResponse(EntryData{Entry: entry}, c)
}

func NewListResponse(list any, limitExceeded bool, c clock.Clock) ResponseModel {
	return NewOKResponse(ListData{List: list, LimitExceeded: limitExceeded}, c)
}

func NewErrorResponse(code int, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Text:        text,
		Version:     apiVersion,
	}
}
