//go:build ignore

// build.go - tsflow build script
// Usage: go run build.go [-target=TARGET]
// Targets: build, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	version    = "0.1.0"
	versionPkg = "tsflow/pkg/contracts"
	distDir    = "dist"
)

var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	startTime := time.Now()

	switch *target {
	case "build":
		build(*verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func build(verbose bool) {
	printInfo("Building tsflow...")

	ldflags := fmt.Sprintf("-s -w -X %[1]s.Version=%[2]s -X %[1]s.BuildTime=%[3]s -X %[1]s.GitCommit=%[4]s",
		versionPkg, version, time.Now().UTC().Format(time.RFC3339), gitCommit())
	outputPath := filepath.Join(distDir, "tsflow")

	args := []string{"build", "-ldflags", ldflags, "-o", outputPath, "./cmd/tsflow"}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
	}
	run(verbose, args...)

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, sizeMB))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	run(true, append(args, "./...")...)
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
		os.Exit(1)
	}
}

func run(stream bool, args ...string) {
	cmd := exec.Command("go", args...)
	if stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("go %s failed: %v", args[0], err))
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET")
	fmt.Println("  build   Build dist/tsflow with version ldflags")
	fmt.Println("  test    Run all Go tests with the race detector")
	fmt.Println("  clean   Remove dist/")
}
