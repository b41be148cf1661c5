package main

import (
	"context"

	"github.com/cristian-franco-ml/Hotel-v2/cmd/scraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
