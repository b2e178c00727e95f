package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tranvictor/addrscout/extractor"
	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
)

const maxResourceBytes = 16 << 20

var (
	ScanOrigin string
	ScanURL    string
	ScanForce  bool
)

var fetchClient = &http.Client{Timeout: 30 * time.Second}

func fetchResource(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s returned %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes))
}

func printReport(u ui.UI, report extractor.Report) {
	if report.Origin == "" {
		u.Warn("No origin given, nothing was recorded.")
		return
	}
	if report.AlreadySeen {
		u.Warn("%s was already scanned.", report.URL)
		return
	}
	u.KeyValue([][2]string{
		{"Resource", report.URL},
		{"Origin", report.Origin},
		{"Candidates", strconv.Itoa(report.Candidates)},
		{"Added", strconv.Itoa(report.Added)},
		{"Duplicates", strconv.Itoa(report.Duplicates)},
		{"Rejected", strconv.Itoa(report.Rejected)},
		{"Suppressed", strconv.Itoa(report.Suppressed)},
	})
	if report.Added > 0 {
		u.Success("%d new address(es) recorded for %s.", report.Added, report.Origin)
	}
	if report.Suppressed > 0 {
		u.Warn("%d address(es) were not stored because %s reached its cap.", report.Suppressed, report.Origin)
	}
}

var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Fetch a script or JSON resource and record the addresses in it",
	Long: `Fetch the resource at url and record every Ethereum address found in its
body under the site given by --origin, as if a page of that site had loaded it.

Only .js and .json resources are scanned unless --force is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			if !ScanForce && !extractor.IsScannable(url) {
				u.Warn("%s is not a script or JSON resource. Use --force to scan it anyway.", url)
				return nil
			}
			body, err := fetchResource(ctx, url)
			if err != nil {
				return fmt.Errorf("couldn't fetch %s: %w", url, err)
			}
			report, err := app.Dispatcher.OnResourceLoaded(ctx, url, ScanOrigin, body)
			if err != nil {
				return err
			}
			printReport(u, report)
			return nil
		})
	},
}

var scanFileCmd = &cobra.Command{
	Use:   "scan-file [path]",
	Short: "Record the addresses found in a local file",
	Long: `Read the file at path and record every Ethereum address in it under the site
given by --origin. --url names the resource the file was saved from; it
defaults to the file's own path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("couldn't read %s: %w", path, err)
		}
		url := ScanURL
		if url == "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			url = "file://" + filepath.ToSlash(abs)
		}
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			report, err := app.Dispatcher.OnResourceLoaded(ctx, url, ScanOrigin, body)
			if err != nil {
				return err
			}
			printReport(u, report)
			return nil
		})
	},
}

func init() {
	scanCmd.Flags().StringVarP(&ScanOrigin, "origin", "o", "", "site whose page loaded the resource, as a host or a page url.")
	scanCmd.Flags().BoolVarP(&ScanForce, "force", "f", false, "scan the resource even when it is not .js or .json.")
	scanCmd.MarkFlagRequired("origin")

	scanFileCmd.Flags().StringVarP(&ScanOrigin, "origin", "o", "", "site whose page loaded the resource, as a host or a page url.")
	scanFileCmd.Flags().StringVarP(&ScanURL, "url", "u", "", "url the file was loaded from.")
	scanFileCmd.MarkFlagRequired("origin")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scanFileCmd)
}
