// Command studygram is the client CLI: it drives the offline-first sync
// core the way the UI would, reading from the local cache and pushing
// changes through the coordinators.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"studygram/internal/auth"
	"studygram/internal/blob"
	"studygram/internal/config"
	"studygram/internal/imaging"
	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/prefs"
	"studygram/internal/remote"
	"studygram/internal/repository"
	"studygram/internal/service"
	"studygram/internal/uploader"
)

const usage = `usage: studygram <command> [flags]

commands:
  signup    -email -password -username
  signin    -email -password
  signout
  feed      [-course TAG] [-mine]
  sync
  refresh
  post      -title -content [-course TAG] [-difficulty easy|medium|hard] [-image FILE]
  like      -post ID
  delete    -post ID
  comment   -post ID -text TEXT
  comments  -post ID
`

type app struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	auth     repository.AuthRepository
	postSvc  service.PostService
	pipeline *uploader.Pipeline
	cleanup  func()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer a.cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Let detached upload jobs finish before the process exits; the real
	// client stays alive, a CLI does not.
	a.pipeline.Wait()
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	db, err := localstore.Open(cfg.CachePath)
	if err != nil {
		return nil, err
	}
	pf, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeoutDuration())
	defer cancel()
	store, connErr := remote.ConnectMongo(connectCtx, cfg.RemoteURI, cfg.RemoteDBName, cfg.RemoteTimeoutDuration())

	var monitor netmon.Monitor
	var rs remote.Store
	cleanup := func() {}
	if connErr != nil {
		// No reachable remote store: run fully offline against the cache.
		observability.GlobalLogger.Warn("remote store unreachable, running offline", "error", connErr)
		monitor = netmon.Static(false)
		rs = remote.NewMemStore()
	} else {
		monitor = netmon.Static(true)
		rs = store
		cleanup = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Disconnect(ctx)
		}
	}

	blobs, err := blob.NewDiskStorage(cfg.BlobDir)
	if err != nil {
		cleanup()
		return nil, err
	}

	client := remote.NewClient(rs)
	postStore := localstore.NewPostStore(db)
	commentStore := localstore.NewCommentStore(db)
	userStore := localstore.NewUserStore(db)

	postRepo := repository.NewPostRepository(postStore, client, monitor, pf)
	commentRepo := repository.NewCommentRepository(commentStore, postStore, client, monitor)
	userRepo := repository.NewUserRepository(userStore, client, monitor)
	authRepo := repository.NewAuthRepository(auth.NewStoreService(rs), userStore, client, monitor, pf)

	pipeline := uploader.NewPipeline(imaging.NewWebP(), blobs, postRepo)
	postSvc := service.NewPostService(postRepo, userRepo, authRepo, pipeline, cfg.CreateSettleDelay())

	return &app{
		posts:    postRepo,
		comments: commentRepo,
		users:    userRepo,
		auth:     authRepo,
		postSvc:  postSvc,
		pipeline: pipeline,
		cleanup:  cleanup,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signup(ctx, args)
	case "signin":
		return a.signin(ctx, args)
	case "signout":
		return a.auth.SignOut(ctx)
	case "feed":
		return a.feed(ctx, args)
	case "sync":
		return a.posts.SyncPosts(ctx)
	case "refresh":
		return a.posts.RefreshPosts(ctx)
	case "post":
		return a.createPost(ctx, args)
	case "like":
		return a.like(ctx, args)
	case "delete":
		return a.deletePost(ctx, args)
	case "comment":
		return a.addComment(ctx, args)
	case "comments":
		return a.listComments(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	username := fs.String("username", "", "display name")
	fs.Parse(args)

	user, err := a.auth.SignUp(ctx, *email, *password, *username)
	if err != nil {
		return err
	}
	fmt.Printf("signed up as %s (%s)\n", user.Username, user.ID)
	return nil
}

func (a *app) signin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	user, err := a.auth.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.Username, user.ID)
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	course := fs.String("course", "", "filter by course tag")
	mine := fs.Bool("mine", false, "only my posts")
	fs.Parse(args)

	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var postsCh <-chan []*models.Post
	switch {
	case *mine:
		uid := a.auth.CurrentUserID()
		if uid == "" {
			return fmt.Errorf("not signed in")
		}
		postsCh = a.posts.ObserveByUser(feedCtx, uid)
	case *course != "":
		postsCh = a.posts.ObserveByCourse(feedCtx, *course)
	default:
		postsCh = a.posts.ObserveAll(feedCtx)
	}

	for _, p := range <-postsCh {
		likes := ""
		if p.Likes > 0 {
			likes = fmt.Sprintf("  ♥ %d", p.Likes)
		}
		fmt.Printf("%s  [%s|%s] %s by %s%s\n", p.ID, p.CourseTag, p.DifficultyLevel, p.Title, p.AuthorName, likes)
	}
	return nil
}

func (a *app) createPost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post body")
	course := fs.String("course", "", "course tag")
	difficulty := fs.String("difficulty", "", "easy, medium or hard")
	imagePath := fs.String("image", "", "path to an image file")
	fs.Parse(args)

	var raw []byte
	if *imagePath != "" {
		var err error
		raw, err = os.ReadFile(*imagePath)
		if err != nil {
			return err
		}
	}

	created, err := a.postSvc.CreatePost(ctx, service.CreatePostInput{
		Title:      *title,
		Content:    *content,
		CourseTag:  *course,
		Difficulty: *difficulty,
		Image:      raw,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created post %s\n", created.ID)
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	postID := fs.String("post", "", "post id")
	fs.Parse(args)

	uid := a.auth.CurrentUserID()
	if uid == "" {
		return fmt.Errorf("not signed in")
	}
	return a.posts.LikePost(ctx, *postID, uid)
}

func (a *app) deletePost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "post id")
	fs.Parse(args)
	return a.posts.DeletePost(ctx, *postID)
}

func (a *app) addComment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "post id")
	text := fs.String("text", "", "comment text")
	fs.Parse(args)

	uid := a.auth.CurrentUserID()
	if uid == "" {
		return fmt.Errorf("not signed in")
	}
	comment := &models.Comment{PostID: *postID, UserID: uid, Content: *text}
	if user, err := a.users.GetByID(ctx, uid); err == nil {
		comment.AuthorName = user.Username
		comment.AuthorImageURL = user.ProfileImageURL
	}
	return a.comments.AddComment(ctx, comment)
}

func (a *app) listComments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	postID := fs.String("post", "", "post id")
	fs.Parse(args)

	if err := a.comments.SyncComments(ctx, *postID); err != nil {
		observability.GlobalLogger.Warn("comment sync failed, showing cached", "error", err)
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	comments := <-a.comments.ObserveByPost(listCtx, *postID)
	for _, c := range comments {
		fmt.Printf("[%s] %s: %s\n", time.UnixMilli(c.Timestamp).Format("2006-01-02 15:04"), c.AuthorName, c.Content)
	}
	return nil
}
