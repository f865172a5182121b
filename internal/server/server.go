package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	v1 "github.com/emrgen/manual/apis/v1"
	"github.com/emrgen/manual/internal/archive"
	"github.com/emrgen/manual/internal/cache"
	"github.com/emrgen/manual/internal/compress"
	"github.com/emrgen/manual/internal/config"
	"github.com/emrgen/manual/internal/jobs"
	"github.com/emrgen/manual/internal/queue"
	"github.com/emrgen/manual/internal/service"
	"github.com/emrgen/manual/internal/store"
	"github.com/gobuffalo/packr"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcvalidator "github.com/grpc-ecosystem/go-grpc-middleware/validator"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"google.golang.org/grpc"
)

// Start starts the grpc and http servers and blocks until the process is signalled.
func Start(cnf *config.Config) error {
	var err error

	grpcPort := ":" + cnf.Server.GrpcPort
	httpPort := ":" + cnf.Server.HttpPort

	docStore := store.NewGormStore(config.GetDb(cnf))
	err = docStore.Migrate()
	if err != nil {
		return err
	}

	treeCache, err := newTreeCache(cnf.Cache)
	if err != nil {
		return err
	}

	manualQueue, err := newQueue(cnf.Kafka)
	if err != nil {
		return err
	}
	defer manualQueue.Close()

	retainer, err := newRetainer(cnf.S3)
	if err != nil {
		return err
	}

	manuals := service.NewManualService(docStore, treeCache, manualQueue, retainer, cnf.Upload.Dir)

	executor := jobs.NewTaskExecutor(
		jobs.NewUploadSweeper(cnf.Upload.Dir, service.UploadDirPrefix, cnf.Upload.MaxAge, cnf.Upload.SweepSchedule),
	)
	if err := executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	gl, err := net.Listen("tcp", grpcPort)
	if err != nil {
		return err
	}

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			grpcvalidator.UnaryServerInterceptor(),
			// log the request time
			UnaryGrpcRequestTimeInterceptor(),
		)),
	)
	v1.RegisterManualServiceServer(grpcServer, NewManualServer(manuals))

	openapiDocs := packr.NewBox("../../docs/v1")
	router := NewRouter(manuals, openapiDocs)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	restServer := &http.Server{
		Addr:              httpPort,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// make sure to wait for the servers to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		logrus.Info("click on the following link to view the API documentation: http://localhost", httpPort, "/v1/docs/")
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting grpc server on: ", grpcPort)
		if err := grpcServer.Serve(gl); err != nil {
			logrus.Infof("grpc failed to start: %v", err)
		}
		logrus.Infof("grpc server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	grpcServer.GracefulStop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = restServer.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}

func newTreeCache(cnf config.CacheConfig) (*cache.TreeCache, error) {
	encoder, err := compress.New(cnf.Compression)
	if err != nil {
		return nil, err
	}

	var kv cache.KV = cache.NewMemoryKV()
	if cnf.RedisAddr != "" {
		redis, err := cache.NewRedis(cnf.RedisAddr)
		if err != nil {
			return nil, err
		}
		if err := redis.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cnf.RedisAddr, err)
		}
		kv = redis
		logrus.Infof("caching manual trees in redis at %s", cnf.RedisAddr)
	}

	return cache.NewTreeCache(kv, encoder, cnf.TTL), nil
}

func newQueue(cnf config.KafkaConfig) (queue.ManualQueue, error) {
	if cnf.Brokers == "" {
		return queue.NewNopQueue(), nil
	}

	logrus.Infof("publishing manual events to kafka topic %s", cnf.Topic)
	return queue.NewKafkaQueue(cnf.Brokers, cnf.Topic)
}

func newRetainer(cnf config.S3Config) (archive.Retainer, error) {
	if cnf.Bucket == "" {
		return archive.NopRetainer{}, nil
	}

	logrus.Infof("retaining imported archives in s3 bucket %s", cnf.Bucket)
	return archive.NewS3Retainer(context.Background(), archive.S3Options{
		Bucket:    cnf.Bucket,
		Region:    cnf.Region,
		Endpoint:  cnf.Endpoint,
		AccessKey: cnf.AccessKey,
		SecretKey: cnf.SecretKey,
	})
}
