package readyset_test

import (
	"fmt"
	"readyset"
	"time"
)

func ExampleRegistry_Yield() {
	registry := readyset.NewRegistry(readyset.RegistryConfig{})

	go func() {
		_ = registry.MarkBlockReady(3, 7)
	}()
	sel := registry.Yield(uint64(5 * time.Second))
	fmt.Println(sel)

	_ = registry.ClearBlockCompleted(3, 7)
	_ = registry.MarkBlockReady(0, 1)
	_ = registry.MarkNetworkReady(2)
	fmt.Println(registry.Yield(0))

	_ = registry.ClearNetworkEmpty(2)
	_ = registry.ClearBlockCompleted(0, 1)
	fmt.Println(registry.Yield(0))
	// Output:
	// Block(3, 7)
	// Net(2)
	// None
}
