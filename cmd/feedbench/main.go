package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/google/uuid"

    "github.com/d60-Lab/chirp/config"
    "github.com/d60-Lab/chirp/internal/directory"
    "github.com/d60-Lab/chirp/internal/model"
    "github.com/d60-Lab/chirp/internal/ratelimit"
    "github.com/d60-Lab/chirp/internal/repository"
    "github.com/d60-Lab/chirp/internal/service"
    "github.com/d60-Lab/chirp/pkg/database"
    "github.com/d60-Lab/chirp/pkg/redisclient"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func mustDo(err error) { if err != nil { panic(err) } }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

func avg(vs []time.Duration) time.Duration {
    if len(vs) == 0 { return 0 }
    var sum time.Duration
    for _, d := range vs { sum += d }
    return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
    if s := os.Getenv(name); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { return v } }
    return def
}

func main() {
    ctx := context.Background()
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    mustDo(db.AutoMigrate(model.Models()...))
    rdb := must(redisclient.InitRedis(ctx, cfg.Redis))
    defer rdb.Close()

    // params
    USERS := envInt("USERS", 2000)     // authors in the directory
    POSTS := envInt("POSTS", 20000)    // seeded posts
    READS := envInt("READS", 2000)     // reads per scenario
    WRITES := envInt("WRITES", 500)    // creates through the service

    // clean tables for a reproducible run (ok for local bench)
    mustDo(db.Exec("DELETE FROM posts").Error)
    mustDo(db.Exec("DELETE FROM users").Error)
    mustDo(rdb.FlushDB(ctx).Err())

    users := make([]model.User, USERS)
    for i := 0; i < USERS; i++ {
        id := uuid.NewString()
        users[i] = model.User{ID: "user_" + id, Username: fmt.Sprintf("u%d", i), Email: id[:8] + "@example.com", PasswordHash: "x"}
    }
    mustDo(db.CreateInBatches(&users, 500).Error)

    base := time.Now().Add(-time.Duration(POSTS) * time.Second)
    posts := make([]model.Post, POSTS)
    for i := 0; i < POSTS; i++ {
        posts[i] = model.Post{ID: uuid.NewString(), AuthorID: users[i%USERS].ID, Content: "🐦", CreatedAt: base.Add(time.Duration(i) * time.Second)}
    }
    mustDo(db.CreateInBatches(&posts, 1000).Error)
    fmt.Printf("seeded users=%d posts=%d\n", USERS, POSTS)

    postRepo := repository.NewPostRepository(db)
    local := directory.NewLocalDirectory(repository.NewUserRepository(db))
    cached := directory.NewCachedDirectory(local, rdb, 10*time.Minute, "bench:dir")

    // 压测写路径时放开额度，只测 Redis 脚本本身的开销
    limiter := ratelimit.NewRedisLimiter(rdb, WRITES+1, cfg.RateLimit.Window, "bench:rl")

    run := func(name string, dir directory.Directory, warm bool) {
        svc := service.NewPostService(postRepo, dir, limiter)
        if warm {
            for i := 0; i < 10; i++ { _, _ = svc.ListAll(ctx) }
        }
        cached.ResetStats()
        latest := make([]time.Duration, 0, READS)
        byAuthor := make([]time.Duration, 0, READS)
        for i := 0; i < READS; i++ {
            st := time.Now()
            _ = must(svc.ListAll(ctx))
            latest = append(latest, time.Since(st))

            st = time.Now()
            _ = must(svc.ListByAuthor(ctx, users[i%USERS].ID))
            byAuthor = append(byAuthor, time.Since(st))
        }
        fmt.Printf("%-10s ListAll    avg=%v p95=%v p99=%v\n", name, avg(latest), pct(latest, 0.95), pct(latest, 0.99))
        fmt.Printf("%-10s ListByAuthor avg=%v p95=%v p99=%v\n", name, avg(byAuthor), pct(byAuthor, 0.95), pct(byAuthor, 0.99))
    }

    run("no-cache", local, false)
    run("cached", cached, true)
    st := cached.Stats()
    fmt.Printf("directory cache: hits=%d misses=%d upstream_calls=%d\n", st.Hits, st.Misses, st.UpstreamCalls)

    // write path: validate + sliding window + insert
    svc := service.NewPostService(postRepo, local, limiter)
    writes := make([]time.Duration, 0, WRITES)
    for i := 0; i < WRITES; i++ {
        t0 := time.Now()
        _ = must(svc.Create(ctx, users[0].ID, "🚀"))
        writes = append(writes, time.Since(t0))
    }
    fmt.Printf("Create (single author, WRITES=%d): avg=%v p95=%v p99=%v\n", WRITES, avg(writes), pct(writes, 0.95), pct(writes, 0.99))
}
