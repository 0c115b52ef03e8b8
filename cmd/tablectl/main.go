// Command tablectl filters, sorts, pages, selects and exports records held
// in JSON or JSONL files, keeping per-table preferences between runs.
package main

import "github.com/mesh-intelligence/datatable/internal/cli"

func main() {
	cli.Execute()
}
