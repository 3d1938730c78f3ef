package secretmap_test

import (
	"fmt"

	"github.com/systmms/secretmap/pkg/secretmap"
	"github.com/systmms/secretmap/pkg/varstore"
)

func ExampleHandler_Apply() {
	store := varstore.New()
	handler := secretmap.NewHandler(store, secretmap.KindBasicCredentials, nil)

	if err := handler.Apply("app-secret", `{"username":"deploy","password":"s3cret"}`); err != nil {
		fmt.Println("apply failed:", err)
		return
	}

	fmt.Println("USERNAME =", store.Get("USERNAME"))
	fmt.Println("PASSWORD =", store.Get("PASSWORD"))
	// Output:
	// USERNAME = deploy
	// PASSWORD = s3cret
}

func ExampleHandler_Apply_override() {
	store := varstore.New()
	handler := secretmap.NewHandler(store, secretmap.KindSSHKey,
		secretmap.Mapping{"ssh_private_key": "SSH_KEY"})

	// Payloads often arrive shell-quoted; decoding strips one quote layer.
	if err := handler.Apply("deploy-key", `'{"ssh_private_key":"KEY"}'`); err != nil {
		fmt.Println("apply failed:", err)
		return
	}

	fmt.Println("SSH_KEY =", store.Get("SSH_KEY"))
	// Output:
	// SSH_KEY = KEY
}

func ExampleHandler_ApplyOptional() {
	store := varstore.New()
	handler := secretmap.NewHandler(store, secretmap.KindKeyValue,
		secretmap.Mapping{"api_token": "API_TOKEN"})

	// An absent payload is fine for optional secrets.
	if err := handler.ApplyOptional("optional-secret", ""); err != nil {
		fmt.Println("apply failed:", err)
		return
	}

	fmt.Println("variables written:", store.Len())
	// Output:
	// variables written: 0
}

func ExampleDecode() {
	value, err := secretmap.Decode("app-secret", `{\"port\":\"5432\"}`)
	if err != nil {
		fmt.Println("decode failed:", err)
		return
	}

	obj := value.(map[string]any)
	fmt.Println("port =", obj["port"])
	// Output:
	// port = 5432
}

func ExampleValidShape() {
	value := map[string]any{"username": "deploy", "password": "s3cret", "note": "staging"}

	fmt.Println(secretmap.ValidShape(value, secretmap.KindBasicCredentials))
	fmt.Println(secretmap.ValidShape(value, secretmap.KindDatabaseCredentials))
	// Output:
	// true
	// false
}
