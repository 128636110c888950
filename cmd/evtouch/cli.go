package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"

	"github.com/evtouch/evtouch/internal/pkg/logger"
)

type TimeNanosecond time.Time

func (j *TimeNanosecond) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*j = TimeNanosecond(time.Unix(0, v))
	return nil
}

func (j TimeNanosecond) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(j))
}

type Entry struct {
	Ts     TimeNanosecond `json:"ts"`
	Caller string         `json:"caller"`
	Msg    string         `json:"msg"`
	Level  int            `json:"level"`

	Device string `json:"device_name"`
	Slot   *int   `json:"slot,omitempty"`
}

func unpack(data []byte) (Entry, error) {
	var v Entry
	err := json.Unmarshal(data, &v)
	return v, err
}

func gray(v uint8) aurora.Color {
	if v > 23 {
		v = 23
	}
	return aurora.Color(232+v) << 16
}

func color(r, g, b uint8) aurora.Color {
	return aurora.Color(16+36*r+6*g+b) << 16
}

// colorForString keeps a given string at a stable, distinguishable color
func colorForString(au aurora.Aurora, s string) aurora.Value {
	var sum int
	for _, r := range s {
		sum += int(r)
	}
	return au.Index(uint8(16+sum%216), s)
}

func prepareString(msg Entry, au aurora.Aurora, logLevel int) string {
	if msg.Level > logLevel {
		return ""
	}

	var msgColor aurora.Color

	switch msg.Level {
	case logger.ErrorLvl:
		msgColor = color(5, 1, 1)
	case logger.WarningLvl:
		msgColor = color(5, 5, 1)
	case logger.InfoLvl:
		msgColor = gray(18)
	case logger.TouchLvl:
		msgColor = gray(15)
	case logger.DebugLvl:
		msgColor = gray(9)
	}

	tf := time.Time(msg.Ts).Format("15:04:05.000")
	timestamp := fmt.Sprintf("[%s]", au.Reset(tf).Colorize(color(1, 1, 5)).String())

	fields := ""
	if msg.Device != "" {
		fields += fmt.Sprintf(" [dev=%s]", colorForString(au, msg.Device).String())
	}
	if msg.Slot != nil {
		fields += fmt.Sprintf(" [slot=%d]", *msg.Slot)
	}
	if logLevel >= logger.DebugLvl && strings.Contains(msg.Caller, ":") {
		x := strings.Split(msg.Caller, ":")
		fields += fmt.Sprintf(" (%s:%s)", colorForString(au, x[0]).String(), x[1])
	}
	if fields != "" {
		fields = fields[1:] // removing one space at the beginning
	}

	m := au.Reset(msg.Msg).Colorize(msgColor).String()
	return fmt.Sprintf("%s %s %s", timestamp, m, fields)
}

func processLogs(noColor bool, logLevel int, silent bool) {
	if silent {
		for range logger.Messages {
		}
		return
	}

	au := aurora.NewAurora(!noColor)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, logLevel)
		if m != "" {
			fmt.Fprintf(os.Stderr, "%s\n", m)
		}
	}
}
