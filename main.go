package main

import (
	"github.com/lehigh-university-libraries/bibtidy/cmd"

	// Register format plugins
	_ "github.com/lehigh-university-libraries/bibtidy/format/bibtex"
	_ "github.com/lehigh-university-libraries/bibtidy/format/csl"
	_ "github.com/lehigh-university-libraries/bibtidy/format/json"
)

func main() {
	cmd.Execute()
}
