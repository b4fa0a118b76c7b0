// Command archflow uploads zipped codebases for feature and workflow analysis.
package main

import (
	"github.com/huangsam/archflow/cmd"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)

	err := cmd.Execute()
	if flushErr := cmd.FlushMetrics(); flushErr != nil {
		contract.LogWarn("writing metrics", flushErr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("archflow", err)
	}
}
