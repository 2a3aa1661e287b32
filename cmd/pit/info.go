package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/cedricshih/pit/pkg/avi"
	"github.com/cedricshih/pit/pkg/pipeline"
	"github.com/cedricshih/pit/pkg/riff"
)

// maxListed caps the frame chunks printed per list.
const maxListed = 8

func runInfo(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.Wrap(pipeline.ErrUsage, "info takes exactly one file")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	nodes, err := riff.Parse(f, st.Size(), 4)
	if err != nil {
		return errors.Wrapf(err, "parse %s", args[0])
	}

	fmt.Fprintf(stdout, "%s: %d bytes\n", args[0], st.Size())
	for _, n := range nodes {
		printNode(stdout, n, 0)
	}
	fmt.Fprintln(stdout)

	if len(nodes) == 0 {
		return nil
	}
	return printHeaders(stdout, f, nodes[0])
}

func printNode(w io.Writer, n *riff.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsList() {
		fmt.Fprintf(w, "%s%s '%s' @%d size %d\n", indent, n.FourCC, n.Subtype, n.Offset, n.Size)
	} else {
		fmt.Fprintf(w, "%s'%s' @%d size %d\n", indent, n.FourCC, n.Offset, n.Size)
	}

	for i, c := range n.Children {
		if i == maxListed && len(n.Children) > maxListed+1 {
			fmt.Fprintf(w, "%s  ... %d more\n", indent, len(n.Children)-i-1)
			printNode(w, n.Children[len(n.Children)-1], depth+1)
			return
		}
		printNode(w, c, depth+1)
	}
}

func printHeaders(w io.Writer, r io.ReaderAt, root *riff.Node) error {
	if n := root.Find("avih"); n != nil {
		p, err := n.Payload(r)
		if err != nil {
			return err
		}
		h, err := avi.ParseMainHeader(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Resolution: %dx%d\n", h.Width, h.Height)
		fmt.Fprintf(w, "Frames: %d\n", h.TotalFrames)
		fmt.Fprintf(w, "Frame Duration: %d us\n", h.MicroSecPerFrame)
		fmt.Fprintf(w, "Max Bytes/s: %d\n", h.MaxBytesPerSec)
	}

	if n := root.Find("strh"); n != nil {
		p, err := n.Payload(r)
		if err != nil {
			return err
		}
		h, err := avi.ParseStreamHeader(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Codec: %s\n", h.Handler)
		if h.Scale != 0 {
			fmt.Fprintf(w, "Frame Rate: %d/%d (%.2f)\n", h.Rate, h.Scale, float64(h.Rate)/float64(h.Scale))
		}
	}

	if n := root.Find("idx1"); n != nil {
		p, err := n.Payload(r)
		if err != nil {
			return err
		}
		entries, err := avi.ParseIndex(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Index Entries: %d\n", len(entries))
	}
	return nil
}
