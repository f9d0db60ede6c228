/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xsite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	"github.com/openziti/xsite/middleware"
)

type ServerContext struct {
	BindPoint    *BindPointConfig
	ServerConfig *ServerConfig
	Config       *InstanceConfig
}

type namedHttpServer struct {
	*http.Server
	SiteBindingList []string
	BindPointConfig *BindPointConfig
	ServerConfig    *ServerConfig
	InstanceConfig  *InstanceConfig
}

func (s namedHttpServer) NewBaseContext(_ net.Listener) context.Context {
	serverContext := &ServerContext{
		BindPoint:    s.BindPointConfig,
		ServerConfig: s.ServerConfig,
		Config:       s.InstanceConfig,
	}

	ctx := context.Background()
	ctx = context.WithValue(ctx, ServerContextKey, serverContext)

	return ctx
}

// Server represents all the http.Server's and sites necessary to run a single xsite.ServerConfig
type Server struct {
	DefaultHttpHandlerProviderImpl
	HttpServers    []*namedHttpServer
	Sites          []SiteHandler
	logWriter      *io.PipeWriter
	Handle         http.Handler
	OnHandlerPanic func(writer http.ResponseWriter, request *http.Request, panicVal interface{})
	ServerConfig   *ServerConfig
}

// NewServer creates a new Server from a ServerConfig. Sites are created by the factories registered for their
// bindings and combined by the instance's DemuxFactory.
func NewServer(instance Instance, serverConfig *ServerConfig) (*Server, error) {
	logWriter := pfxlog.Logger().Writer()

	server := &Server{
		logWriter:    logWriter,
		HttpServers:  []*namedHttpServer{},
		ServerConfig: serverConfig,
	}

	server.SetParent(instance)

	var siteBindingList []string

	for _, site := range serverConfig.Sites {
		siteFactory := instance.GetRegistry().Get(site.Binding())
		if siteFactory == nil {
			server.closeSites()
			return nil, fmt.Errorf("encountered site binding [%s] which has no associated factory registered", site.Binding())
		}

		handler, err := siteFactory.New(serverConfig, site.Options())
		if err != nil {
			server.closeSites()
			return nil, fmt.Errorf("encountered error building site for binding [%s]: %v", site.Binding(), err)
		}
		server.Sites = append(server.Sites, handler)
		siteBindingList = append(siteBindingList, site.Binding())
	}

	demuxHandler, err := instance.GetDemuxFactory().Build(server.Sites)

	if err != nil {
		server.closeSites()
		return nil, fmt.Errorf("error creating server: %v", err)
	}

	demuxHandler.SetParent(server)
	server.Handle = server.wrapHandler(demuxHandler)

	for _, bindPoint := range serverConfig.BindPoints {
		namedServer := &namedHttpServer{
			SiteBindingList: siteBindingList,
			ServerConfig:    serverConfig,
			BindPointConfig: bindPoint,
			InstanceConfig:  instance.GetConfig(),
			Server: &http.Server{
				Addr:         bindPoint.InterfaceAddress,
				WriteTimeout: serverConfig.Options.WriteTimeout,
				ReadTimeout:  serverConfig.Options.ReadTimeout,
				IdleTimeout:  serverConfig.Options.IdleTimeout,
				Handler:      server.Handle,
				ErrorLog:     log.New(logWriter, "", 0),
			},
		}

		namedServer.BaseContext = namedServer.NewBaseContext

		server.HttpServers = append(server.HttpServers, namedServer)
	}

	return server, nil
}

func (server *Server) wrapHandler(handler http.Handler) http.Handler {
	//innermost/bottom -> outermost/top
	handler = server.wrapPanicRecovery(handler)
	handler = middleware.NewCompressionHandler(handler)
	return handler
}

// wrapPanicRecovery wraps a http.Handler with another http.Handler that provides recovery.
func (server *Server) wrapPanicRecovery(handler http.Handler) http.Handler {
	wrappedHandler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				if server.OnHandlerPanic != nil {
					server.OnHandlerPanic(writer, request, panicVal)
					return
				}
				pfxlog.Logger().Errorf("panic caught by server handler: %v\n%v", panicVal, debugz.GenerateLocalStack())
				writer.WriteHeader(http.StatusInternalServerError)
			}
		}()

		handler.ServeHTTP(writer, request)
	})

	return wrappedHandler
}

// Start the server and all underlying http.Server's. It blocks until the http.Server's are shut down. When a bind
// point cannot be listened on, the http.Server's already started are shut down before the error is returned.
func (server *Server) Start() error {
	logger := pfxlog.Logger()

	errs := make(chan error, len(server.HttpServers))
	var started []*namedHttpServer
	for _, httpServer := range server.HttpServers {
		localServer := httpServer
		logger.Infof("starting to listen and serve on %s for server %s with sites: %v", localServer.Addr, localServer.ServerConfig.Name, localServer.SiteBindingList)

		l, err := net.Listen("tcp", localServer.Addr)
		if err != nil {
			for _, startedServer := range started {
				_ = startedServer.Shutdown(context.Background())
			}
			for range started {
				<-errs
			}
			return fmt.Errorf("error listening on %s: %w", localServer.Addr, err)
		}
		started = append(started, localServer)

		go func() {
			err := localServer.Serve(l)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errs <- err
		}()
	}

	var result error
	for range started {
		if err := <-errs; err != nil && result == nil {
			result = fmt.Errorf("error serving: %s", err)
		}
	}

	return result
}

// Shutdown stops the server, all underlying http.Server's and the sites
func (server *Server) Shutdown(ctx context.Context) {
	_ = server.logWriter.Close()

	for _, httpServer := range server.HttpServers {
		localServer := httpServer
		func() {
			_ = localServer.Shutdown(ctx)
		}()
	}

	server.closeSites()
}

func (server *Server) closeSites() {
	for _, site := range server.Sites {
		if err := site.Close(); err != nil {
			pfxlog.Logger().WithError(err).Warnf("error closing site [%s]", site.Binding())
		}
	}
}
