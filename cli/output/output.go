package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

type style struct {
	tag  *color.Color
	body *color.Color
}

var (
	infoStyle    = style{color.New(color.FgBlue, color.Bold), color.New(color.FgBlue)}
	warnStyle    = style{color.New(color.FgYellow, color.Bold), color.New(color.FgYellow)}
	errorStyle   = style{color.New(color.FgRed, color.Bold), color.New(color.FgRed)}
	successStyle = style{color.New(color.FgGreen, color.Bold), color.New(color.FgGreen)}
	debugStyle   = style{color.New(color.FgCyan, color.Bold), color.New(color.FgCyan)}

	dimColor    = color.New(color.FgHiBlack)
	promptColor = color.New(color.FgBlue, color.Bold)
	headColor   = color.New(color.FgGreen, color.Underline)
)

// core printer
func printMessage(title string, s style, message string) {
	fmt.Fprintf(os.Stdout, "%s %s\n", s.tag.Sprintf("[%s]", title), s.body.Sprint(message))
}

func Info(msg string) {
	printMessage("INFO", infoStyle, msg)
}

func Warn(msg string) {
	printMessage("WARN", warnStyle, msg)
}

func Error(msg string) {
	printMessage("ERROR", errorStyle, msg)
}

func Success(msg string) {
	printMessage("SUCCESS", successStyle, msg)
}

func Debug(msg string) {
	printMessage("DEBUG", debugStyle, msg)
}

func Dim(msg string) {
	fmt.Fprintln(os.Stdout, dimColor.Sprint(msg))
}

// Plain prints msg without decoration.
func Plain(msg string) {
	fmt.Fprintln(os.Stdout, msg)
}

// Prompt echoes an entered console command.
func Prompt(msg string) {
	fmt.Fprintln(os.Stdout, promptColor.Sprint("> "+msg))
}

// Heading prints a section title.
func Heading(msg string) {
	fmt.Fprintln(os.Stdout, headColor.Sprint(msg))
}

// Pairs prints label/value rows with the labels padded to one width.
func Pairs(rows [][2]string) {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	for _, r := range rows {
		fmt.Fprintf(os.Stdout, "  %s%s  %s\n", dimColor.Sprint(r[0]), strings.Repeat(" ", width-len(r[0])), r[1])
	}
}
