package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/garnizeh/innohub/internal/config"
)

// Stop the server before restoring; the database file is replaced in place.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	from := flag.String("from", "", "Backup file (default <database>.bak)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	dst := cfg.DatabasePath
	src := *from
	if src == "" {
		src = dst + ".bak"
	}

	srcFile, err := os.Open(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	defer srcFile.Close()

	tmp := dst + ".restore"
	dstFile, err := os.Create(tmp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	if _, err = io.Copy(dstFile, srcFile); err == nil {
		err = dstFile.Sync()
	}
	if cerr := dstFile.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		os.Remove(tmp)
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	// stale journal files belong to the replaced database
	os.Remove(dst + "-wal")
	os.Remove(dst + "-shm")

	fmt.Printf("Database restored from %s.\n", src)
}
