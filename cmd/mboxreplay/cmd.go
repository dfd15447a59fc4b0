// Command mboxreplay runs the transaction extractor over a local mbox export
// and prints what would be ingested. Nothing is written to Firestore.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"github.com/emersion/go-mbox"

	"github.com/GregMSThompson/spendwise/internal/extract"
	"github.com/GregMSThompson/spendwise/internal/mailtext"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type stats struct {
	Messages   int
	Matched    int
	Duplicates int
	Undecoded  int
}

func main() {
	path := flag.String("file", "", "path to an mbox file")
	zone := flag.String("timezone", "Asia/Kolkata", "zone used for dates without one")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.New(*level, logger.NewTextHandler)
	if *path == "" {
		log.Error("-file is required")
		os.Exit(2)
	}
	loc, err := time.LoadLocation(*zone)
	if err != nil {
		log.Error("invalid timezone", "timezone", *zone, "error", err)
		os.Exit(2)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Error("open mbox failed", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	st, err := replay(log, f, os.Stdout, time.Now().In(loc))
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
	log.Info("replay complete",
		"messages", st.Messages,
		"matched", st.Matched,
		"duplicates", st.Duplicates,
		"undecoded", st.Undecoded,
	)
}

// replay writes one row per extracted transaction. A provider reference seen
// earlier in the file counts as a duplicate, the same as the live store.
func replay(log *slog.Logger, r io.Reader, out io.Writer, now time.Time) (stats, error) {
	var st stats
	seen := map[string]bool{}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tAMOUNT\tMERCHANT\tREFERENCE\tDATE")

	mr := mbox.NewReader(r)
	for {
		msg, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}
		st.Messages++

		decoded, err := mailtext.Decode(msg)
		if err != nil {
			st.Undecoded++
			log.Debug("message skipped", "index", st.Messages, "error", err)
			continue
		}
		cand, ok := extract.Extract(decoded.Body, now)
		if !ok {
			log.Debug("no template matched", "index", st.Messages, "subject", decoded.Subject)
			continue
		}
		if seen[cand.ExternalID] {
			st.Duplicates++
			continue
		}
		seen[cand.ExternalID] = true
		st.Matched++

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			cand.Platform,
			cand.Amount.StringFixed(2),
			cand.MerchantName,
			cand.ExternalID,
			cand.Date.Format(time.DateOnly),
		)
	}
	return st, tw.Flush()
}
