package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/anime-shed/forgery-inspector-go/internal/evaluation"
)

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	boldColor    = color.New(color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

// printSummary prints one line of metrics per profile.
func printSummary(report *evaluation.Report) {
	fmt.Println()
	for _, p := range report.Profiles {
		m := report.Metrics[p]
		fmt.Printf("%-12s precision %s  recall %s  accuracy %s  (TP %d  FP %d  FN %d  TN %d)\n",
			boldColor(strings.ToUpper(string(p))),
			rate(m.Precision()), rate(m.Recall()), rate(m.Accuracy()),
			m.TP, m.FP, m.FN, m.TN)
	}
	if len(report.Skipped) > 0 {
		printWarning("Skipped %d image(s): %s", len(report.Skipped), strings.Join(report.Skipped, ", "))
	}
	fmt.Println()
}

// printDefaults reports detectors that fell back to their default score.
func printDefaults(metrics map[string]interface{}) {
	defaults, ok := metrics["detector_defaults"].(map[string]int64)
	if !ok || len(defaults) == 0 {
		return
	}
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printWarning("%s defaulted on %d image(s)", name, defaults[name])
	}
}

// rate colors a ratio green from 80%, yellow from 50%, red below.
func rate(v float64) string {
	s := fmt.Sprintf("%5.1f%%", v*100)
	switch {
	case v >= 0.8:
		return successColor(s)
	case v >= 0.5:
		return warningColor(s)
	default:
		return errorColor(s)
	}
}
