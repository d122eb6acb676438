// Command zffinfo opens a container and prints a summary of its MainFooter, segments, and
// objects.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/zetaforensics/zff/zff"
	"github.com/zetaforensics/zff/zfferr"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <base-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "zffinfo:", err)
		os.Exit(1)
	}
}

func run(basePath string) error {
	c, err := zff.Open(basePath)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("segments:     %d\n", c.NumberOfSegments())
	if notes := c.DescriptionNotes(); notes != "" {
		fmt.Printf("notes:        %s\n", notes)
	}

	numbers := c.ObjectNumbers()
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	fmt.Printf("objects:      %d\n", len(numbers))

	for _, n := range numbers {
		oh, err := c.ObjectHeader(n)
		if err != nil && errors.Is(err, zfferr.New(zfferr.KindMissingEncryptionKey)) {
			fmt.Printf("  object %-4d  type=encrypted  (password required for details)\n", n)
			continue
		}
		if err != nil {
			return fmt.Errorf("object %d: %w", n, err)
		}
		fmt.Printf("  object %-4d  type=%-9s chunk_size=%d\n", n, oh.ObjectType, oh.ChunkSize)
	}
	return nil
}
