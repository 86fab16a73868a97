package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "subproc",
	Short: "Run child processes with redirected standard streams",
	Long: `A process runner built on the subprocess library: redirect stdin,
stdout, and stderr to files or captures, set the working directory, and
replace or extend the child's environment.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
