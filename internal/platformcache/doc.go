// Package platformcache caches platform show lookups in redis, or in memory
// when no redis server is configured.
package platformcache
