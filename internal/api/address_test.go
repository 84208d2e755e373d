package api_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"address_book/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// createUser is a test shortcut for POST /users
func createUser(t *testing.T, r *gin.Engine, name string) uint {
	t.Helper()
	code, resp := do(t, r, http.MethodPost, "/users", fmt.Sprintf(`{"name": %q}`, name))
	require.Equal(t, http.StatusCreated, code)
	return uint(resp["user"].(map[string]any)["id"].(float64))
}

func TestCreateAddressForUser(t *testing.T) {
	r, db := setupRouter(t)
	id := createUser(t, r, "spongebob")

	code, resp := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
		`{"email_address": "spongebob@sqlalchemy.org", "neighborhood": "Bikini Bottom"}`)
	require.Equal(t, http.StatusCreated, code)
	addr := resp["address"].(map[string]any)
	require.EqualValues(t, id, addr["user_id"])

	var count int64
	require.NoError(t, db.Model(&domain.Address{}).Where("user_id = ?", id).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateAddressForMissingUser(t *testing.T) {
	r, _ := setupRouter(t)

	// No user 4242 exists, so the address would dangle
	code, resp := do(t, r, http.MethodPost, "/users/4242/addresses",
		`{"email_address": "orphan@example.com", "neighborhood": "Nowhere"}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "User not found", resp["error"])
}

func TestCreateAddressValidation(t *testing.T) {
	r, _ := setupRouter(t)
	id := createUser(t, r, "plankton")

	// Missing neighborhood
	code, _ := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
		`{"email_address": "plankton@chumbucket.example"}`)
	require.Equal(t, http.StatusBadRequest, code)

	// Email address over the varchar(30) limit
	long := strings.Repeat("x", 31)
	code, _ = do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
		`{"email_address": "`+long+`", "neighborhood": "Chum Bucket"}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestListAddresses(t *testing.T) {
	r, _ := setupRouter(t)
	id := createUser(t, r, "sandy")

	for _, n := range []string{"Treedome", "Texas"} {
		code, _ := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
			fmt.Sprintf(`{"email_address": "sandy@sqlalchemy.org", "neighborhood": %q}`, n))
		require.Equal(t, http.StatusCreated, code)
	}

	code, resp := do(t, r, http.MethodGet, fmt.Sprintf("/users/%d/addresses", id), "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp["addresses"].([]any), 2)
	require.Equal(t, false, resp["cached"])

	// Second read is served from the cache
	code, resp = do(t, r, http.MethodGet, fmt.Sprintf("/users/%d/addresses", id), "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, resp["cached"])
}

func TestDeleteAddressRemovesOrphan(t *testing.T) {
	r, db := setupRouter(t)
	id := createUser(t, r, "gary")

	code, resp := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
		`{"email_address": "gary@meow.example", "neighborhood": "Bikini Bottom"}`)
	require.Equal(t, http.StatusCreated, code)
	addrID := uint(resp["address"].(map[string]any)["id"].(float64))

	// Detaching without reassignment deletes the row outright
	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/addresses/%d", addrID), "")
	require.Equal(t, http.StatusOK, code)

	var addresses, users int64
	require.NoError(t, db.Model(&domain.Address{}).Count(&addresses).Error)
	require.NoError(t, db.Model(&domain.User{}).Count(&users).Error)
	require.EqualValues(t, 0, addresses)
	require.EqualValues(t, 1, users, "the owner itself survives")
}

func TestReassignAddress(t *testing.T) {
	r, db := setupRouter(t)
	from := createUser(t, r, "spongebob")
	to := createUser(t, r, "patrick")

	code, resp := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", from),
		`{"email_address": "shared@rock.example", "neighborhood": "Bikini Bottom"}`)
	require.Equal(t, http.StatusCreated, code)
	addrID := uint(resp["address"].(map[string]any)["id"].(float64))

	// Reassignment is the one non-destructive way to detach
	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/addresses/%d", addrID),
		fmt.Sprintf(`{"user_id": %d}`, to))
	require.Equal(t, http.StatusOK, code)

	var got domain.Address
	require.NoError(t, db.First(&got, addrID).Error)
	require.Equal(t, to, got.UserID)

	// Reassignment to a nonexistent user is refused
	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/addresses/%d", addrID), `{"user_id": 4242}`)
	require.Equal(t, http.StatusNotFound, code)
}

func TestUpdateAddressFields(t *testing.T) {
	r, db := setupRouter(t)
	id := createUser(t, r, "squidward")

	code, resp := do(t, r, http.MethodPost, fmt.Sprintf("/users/%d/addresses", id),
		`{"email_address": "squidward@sqlalchemy.org", "neighborhood": "Bikini Bottom"}`)
	require.Equal(t, http.StatusCreated, code)
	addrID := uint(resp["address"].(map[string]any)["id"].(float64))

	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/addresses/%d", addrID),
		`{"neighborhood": "Tentacle Acres"}`)
	require.Equal(t, http.StatusOK, code)

	var got domain.Address
	require.NoError(t, db.First(&got, addrID).Error)
	require.Equal(t, "Tentacle Acres", got.Neighborhood)
	require.Equal(t, "squidward@sqlalchemy.org", got.EmailAddress)
	require.Equal(t, id, got.UserID)
}

func TestDeleteAddressNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	code, resp := do(t, r, http.MethodDelete, "/addresses/4242", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Address not found", resp["error"])
}
