// Command trace-inspect prints a summary of an archived trip trace.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"cloud.google.com/go/storage"
	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/trace"
	infrastorage "github.com/wandermap/navigator/pkg/infrastructure/storage"
)

func main() {
	inputPath := flag.String("input", "", "Path to a FIT trace, or gs://bucket/object")
	verbose := flag.Bool("detailed-dump", false, "Print every point")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Please provide input file with -input")
		os.Exit(1)
	}

	data, err := load(context.Background(), *inputPath)
	if err != nil {
		fmt.Printf("Failed to read trace: %v\n", err)
		os.Exit(1)
	}

	tr, err := trace.DecodeFIT(bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Failed to decode FIT file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== TRACE ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Points\t%d\n", tr.Len())
	fmt.Fprintf(w, "Start\t%s\n", tr.StartedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "End\t%s\n", tr.End().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration\t%s\n", tr.Duration())
	fmt.Fprintf(w, "Distance\t%.2f km\n", tr.DistanceMeters()/1000)
	if tr.Len() > 0 {
		bound := tr.Line().Bound()
		fmt.Fprintf(w, "First\t%s\n", formatPoint(tr.Points[0].Position))
		fmt.Fprintf(w, "Last\t%s\n", formatPoint(tr.Points[tr.Len()-1].Position))
		fmt.Fprintf(w, "Bounds\t%s .. %s\n", formatPoint(bound.Min), formatPoint(bound.Max))
	}
	w.Flush()

	if !*verbose {
		return
	}

	fmt.Println("\n=== POINTS ===")
	pw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(pw, "#\tTime\tLongitude\tLatitude")
	fmt.Fprintln(pw, "-\t----\t---------\t--------")
	for i, p := range tr.Points {
		fmt.Fprintf(pw, "%d\t%s\t%.6f\t%.6f\n", i+1, p.Time.UTC().Format("15:04:05"), p.Position.Lon(), p.Position.Lat())
	}
	pw.Flush()
}

func formatPoint(p orb.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lon(), p.Lat())
}

// load reads a local file or a gs:// object.
func load(ctx context.Context, input string) ([]byte, error) {
	rest, ok := strings.CutPrefix(input, "gs://")
	if !ok {
		return os.ReadFile(input)
	}

	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || object == "" {
		return nil, fmt.Errorf("invalid gs:// path: %s", input)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}
	defer client.Close()

	return (&infrastorage.StorageAdapter{Client: client}).Read(ctx, bucket, object)
}
