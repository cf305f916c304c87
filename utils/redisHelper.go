package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/despasys/despasys_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN_MINUTES"))
	if err != nil || lifespan <= 0 {
		lifespan = 5
	}
	return time.Duration(lifespan) * time.Minute
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// keys are Type:tenantId:id so a cached row can never be served to another tenant
func cacheKey[T any](tenantId string, id int) string {
	return GetTypeName[T]() + ":" + tenantId + ":" + fmt.Sprint(id)
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj *T, tenantId string, id int) error {
	return config.SetRedisObject(cacheKey[T](tenantId, id), obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](tenantId string, id int) (*T, error) {
	var result *T
	exists, err := config.GetRedisObject(cacheKey[T](tenantId, id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedis[T any](tenantId string, id int) error {
	return config.RemoveRedisKey(cacheKey[T](tenantId, id))
}

// SequenceKey is the redis counter for one tenant and one numbered document type.
func SequenceKey(tenantId string, docType string) string {
	return tenantId + "-" + docType + "_seq"
}
